// Package files moves workbooks through the processing directories.
//
// Discovery lists the workbooks already waiting in the unprocessed
// directory. Watcher reports new arrivals once their writes have settled.
// Manager moves finished files to the processed directory and diverts
// failed ones to the errors directory next to a ".error" marker:
//
//	manager := files.NewManager(paths, logger)
//	if result.Err != nil {
//	    manager.Divert(path, result.Err)
//	} else {
//	    manager.MarkProcessed(path)
//	}
package files
