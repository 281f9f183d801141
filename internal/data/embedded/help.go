// Package embedded provides access to data files compiled into the pgshell binary.
package embedded

import _ "embed"

// VariablesData contains the embedded catalog of special variables.
//
//go:embed variables.yaml
var VariablesData []byte
