package steward

import (
	"github.com/xraph/steward/authz"
	"github.com/xraph/steward/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Principal is re-exported from authz package.
type Principal = authz.Principal

// Re-export Money constructors
var (
	EUR  = types.EUR
	USD  = types.USD
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export principal constructors
var (
	Admin    = authz.Admin
	Executor = authz.Executor
)
