package ports

import "github.com/jnMetaCode/available-domains/pkg/log"

// Logger is the structured logging port. It is the pkg/log interface;
// the alias keeps internal packages off the public package path.
type Logger = log.Logger

// Field aliases the pkg/log field type for the same reason.
type Field = log.Field
