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

package opts

import (
	"context"

	"github.com/walteh/argthread/pkg/config"
	"github.com/walteh/argthread/pkg/document"
	"github.com/walteh/argthread/pkg/log"
	"github.com/walteh/argthread/pkg/operation"
)

// RootOpts is filled in by the root command before any subcommand runs. The
// console logger travels in the command context, see log.NewContext.
type RootOpts struct {
	Config *config.Config
	Store  *document.Store
	DryRun bool
}

// Operation returns the options every operation is built from
func (o *RootOpts) Operation(ctx context.Context) operation.Options {
	return operation.Options{
		Config: o.Config,
		Store:  o.Store,
		Logger: log.FromContext(ctx),
		DryRun: o.DryRun,
	}
}
