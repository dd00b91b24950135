package main

import (
	"os"

	"skylink-gateway/internal/store"
)

// newSink assembles the persistence sink chain from env vars and flags.
// GreptimeDB is used when GREPTIMEDB_ENDPOINT is set; logFile adds a JSONL
// export alongside. The returned cleanup closes any open files.
func newSink(logFile string) (store.Sink, func(), error) {
	cleanup := func() {}
	var sinks []store.Sink

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := store.NewGreptimeWriter(endpoint, database)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, gw)
	}

	if logFile != "" {
		fw, err := store.NewFileWriter(logFile, logFile+".activity", logFile+".earnings")
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { fw.Close() }
		sinks = append(sinks, fw)
	}

	switch len(sinks) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return sinks[0], cleanup, nil
	default:
		return store.NewMultiSink(sinks...), cleanup, nil
	}
}
