package main

import (
	"path/filepath"

	"code.cloudfoundry.org/lager"
	"github.com/fsnotify/fsnotify"

	"github.com/cloudfoundry-community/mockbroker/broker"
	"github.com/cloudfoundry-community/mockbroker/catalog"
)

// watchCatalog hot-reloads the seed catalog whenever the file changes. The
// directory is watched rather than the file itself because editors replace
// files on save. A reload that fails validation keeps the running catalog.
func watchCatalog(path string, serviceBroker *broker.Broker, logger lager.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("create-watcher-failed", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Error("watch-failed", err, lager.Data{"path": path})
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			services, err := catalog.LoadFile(path)
			if err != nil {
				logger.Error("reload-failed", err, lager.Data{"path": path})
				continue
			}
			if err := serviceBroker.ReplaceCatalog(services); err != nil {
				logger.Error("replace-failed", err, lager.Data{"path": path})
				continue
			}
			logger.Info("catalog-reloaded", lager.Data{"path": path, "services": len(services)})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watch-error", err)
		}
	}
}
