// Package redisdb provides Redis connectivity for VeSync Connect.
//
// Redis is the persistence engine beneath the credential store: every
// per-installation and per-device record is a single Redis hash, written
// wholesale. This package owns connection setup, health checks, and
// shutdown; the record contract itself lives in internal/credstore.
//
// # Usage
//
//	client, err := redisdb.Connect(ctx, cfg.Redis)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := credstore.New(client.Hashes())
package redisdb
