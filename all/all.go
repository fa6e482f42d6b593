// Package all imports all supported source implementations.
//
// Import this package for its side effects to register all hosts:
//
//	import (
//		"github.com/git-pkgs/modsync"
//		_ "github.com/git-pkgs/modsync/all"
//	)
//
//	// Now all hosts are available
//	hosts := modsync.SupportedHosts()
//	// ["gitea", "github"]
package all

import (
	_ "github.com/git-pkgs/modsync/internal/gitea"
	_ "github.com/git-pkgs/modsync/internal/github"
)
