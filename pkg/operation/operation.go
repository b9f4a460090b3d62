// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package operation

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/argthread/pkg/config"
	"github.com/walteh/argthread/pkg/document"
	"github.com/walteh/argthread/pkg/log"
)

// 🎯 Operation is one unit of work run against the target document
type Operation interface {
	// Name identifies the operation in errors and logs
	Name() string
	// Execute runs the operation to completion
	Execute(ctx context.Context) error
}

// 💾 Store is the document storage an operation reads from and writes to
type Store interface {
	Resolve(ctx context.Context, pattern string) (string, error)
	Read(ctx context.Context, path string) (*document.Document, error)
	WriteAtomic(ctx context.Context, doc *document.Document) error
	Backup(ctx context.Context, path string) error
	Restore(ctx context.Context, path string) error
}

var _ Store = (*document.Store)(nil)

// 🔧 Options contains configuration for an operation
type Options struct {
	// Config is the argthread configuration
	Config *config.Config
	// Store reads and writes the target document
	Store Store
	// Logger prints progress to the console
	Logger *log.Logger
	// DryRun prints a diff instead of writing
	DryRun bool
}

func (o Options) validate() error {
	if o.Config == nil {
		return errors.Errorf("config is required")
	}
	if o.Store == nil {
		return errors.Errorf("store is required")
	}
	if o.Logger == nil {
		return errors.Errorf("logger is required")
	}
	return nil
}
