// Package retrieval defines the adapter contract between datakit and an
// external data store: identifier enumeration, raw payload access, and an
// entity-list cache so expensive enumerations run once.
//
// Local is the reference implementation, backed by a directory of payload
// files plus a newline-delimited id manifest. S3 serves items from an object
// store bucket, Redis from a hash on a Redis server, and SQL from a
// relational table through GORM.
package retrieval
