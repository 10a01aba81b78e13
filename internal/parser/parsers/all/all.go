// Package all imports all available sources for side-effect registration.
//
// Import this package from main to ensure all sources are registered:
//
//	import _ "github.com/Vodeneev/keepgaming/internal/parser/parsers/all"
package all

import (
	_ "github.com/Vodeneev/keepgaming/internal/parser/parsers/draftkings"
)
