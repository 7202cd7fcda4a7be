// Package journal keeps an optional SQLite log of completed gateway
// requests.
//
// Each request produces one Entry holding method, path, matched route,
// status, duration, and bytes written. Entries are queued by a Recorder
// and written on a background goroutine, so a slow disk never delays a
// response; when the queue is full entries are dropped and counted.
//
// A Scheduler deletes entries older than the retention period on a cron
// schedule.
//
// # Usage
//
//	store, err := journal.Open(journal.StoreConfig{Path: "data/journal.db", BusyTimeout: 5 * time.Second}, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := journal.NewRecorder(store, journal.RecorderConfig{BufferSize: 1000}, logger, collector)
//	defer rec.Close()
//
//	rec.Record(journal.Entry{Method: "GET", Path: "/api/tags", Route: "tags", Status: 200})
package journal
