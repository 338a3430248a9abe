/*
Package registry caches the server's key files and runs the three key mutations.

	List ──(fresh?)──yes──> cached names
	   └──no──> singleflight(ListFiles) ──> filter "*.pem" ──> cache + sink

	Download ──> <dir>/<name>, cache untouched
	Delete   ──> ok: drop name from cache (no refetch) | fail: cache untouched
	Upload   ──> ok: invalidate cache, server may rename the file

Each mutation moves idle -> in-flight -> success | error and State reports the latest.
*/
package registry
