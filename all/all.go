// Package all imports all supported download-statistics sources.
//
// Import this package for its side effects to register every source:
//
//	import (
//		"github.com/git-pkgs/npmchart"
//		_ "github.com/git-pkgs/npmchart/all"
//	)
//
//	ecosystems := npmchart.SupportedEcosystems() // ["npm"]
package all

import (
	_ "github.com/git-pkgs/npmchart/internal/npm"
)
