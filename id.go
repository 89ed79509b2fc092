package lanes

import "github.com/xraph/lanes/id"

// ID is the primary identifier type for all lanes entities.
type ID = id.ID

// Prefix identifies the entity type encoded in an ID.
type Prefix = id.Prefix
