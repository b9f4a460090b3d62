/*
Package operation implements the runs argthread performs against its target
document.

	+-------------+      +-------------+      +-------------+
	|   Resolve   | ---> |   Rewrite   | ---> |    Write    |
	|  (document) |      |(plan+rules) |      |  (atomic)   |
	+-------------+      +------+------+      +-------------+
	                            |
	                     +------+------+
	                     |   Verify    |
	                     |   + Audit   |
	                     +-------------+

🎯 Operations:
- rewrite: threads the configured change through the document
- restore: puts the .bak copy back in place

🔄 Rewrite flow:
1. Resolve the target pattern to exactly one file
2. Read it whole
3. Build the ordered rules from the change and validate them
4. Apply the rules, logging one line per rule
5. Fail on rules that did not apply, unless the config is lenient
6. Audit the rewritten call sites with tree-sitter, unless skipped
7. Print a diff for a dry run, otherwise back up and write atomically

📝 The document is read once and written at most once. Nothing is written
when an earlier step fails.
*/
package operation
