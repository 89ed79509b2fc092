// Package redis implements store.Store on Redis using go-redis/v9.
//
// Each job is a Hash holding its JSON encoding, status and version. A
// Sorted Set per status, scored by scheduled time, indexes jobs for
// QueryByStatus. Writes run as a Lua script so the version check, the hash
// update and the index move happen atomically.
//
// The caller owns the client lifecycle:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis
