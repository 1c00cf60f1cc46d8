/*
Package session coordinates access to cached macros.

A Manager serializes work per cache key so that identical solve requests
run the search once, optionally holding a distributed lock so replicas
sharing a redis cache do the same.
*/
package session
