/*
Package config loads the description of the parameter threaded through a document.

	            +-------------+
	            |   Config    |
	            |  (Change)   |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	+---------+   +---------+   +---------+

A Change has five optional parts, applied in this order by package plan:

 1. declaration: one new line inserted after an anchor line
 2. return_type: one field appended to a literal tuple type
 3. return_value: one field appended to the returned tuple literal
 4. bindings: destructuring shapes that bind the new name last
 5. calls: leading and trailing arguments injected into every call

Default returns the built-in change; LoadConfig picks the parser from the
file extension and validates the result.

🔍 Example:

	target = "contract/contracts/predifi-contract/src/test.rs"

	change {
	  call "create_pool" {
	    call    = "client.create_pool"
	    binding = "let pool_id = "
	    trailing {
	      markers  = ["\"ipfs://metadata\",\n        ),"]
	      argument = "\n        &0i128,"
	    }
	  }
	}
*/
package config
