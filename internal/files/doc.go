// Package files provides the file system operations behind the report cache.
//
// Discovery locates cache files by regular expression, including per-day
// files whose names encode a calendar date. Manager performs the basic
// mutations (ensuring directories, deleting files and subtrees), all
// relative to a single root directory.
//
// Example usage:
//
//	discovery := files.NewDiscovery("cache")
//	days, err := discovery.FindDatedFiles("1234/abcd", pattern, "2006-01-02")
//
//	manager := files.NewManager("cache", logger)
//	if err := manager.EnsureDirectory("1234/abcd"); err != nil {
//	    return err
//	}
package files
