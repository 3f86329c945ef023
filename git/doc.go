// Package git reads and maintains git ignore files for csync.
//
// Two views of the same files are offered. ReadIgnorePatterns turns the root
// .gitignore of a project into plain glob patterns that can be handed to rsync
// as --exclude arguments, and CollectIgnorePatterns adds the nested ones with
// their directory as prefix. IsIgnored and EnsureIgnored ask go-git's own matcher
// whether a path is ignored, which is how `csync init` keeps the configuration
// file (it may name hosts and users) out of version control.
//
// All functions take the csync fs.Filesystem abstraction. The matcher-based
// helpers require a filesystem from the fs/billy package, since go-git walks
// the tree through go-billy.
//
// # Basic Usage
//
//	fsys := billyfs.NewBaseOSFS()
//
//	patterns, err := git.CollectIgnorePatterns(fsys, "/home/me/project")
//	// patterns: ["build/", "*.tmp", "docs/_site/"]
//
//	added, err := git.EnsureIgnored(fsys, "/home/me/project", ".csync.cfg")
package git
