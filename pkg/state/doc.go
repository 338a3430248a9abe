/*
Package state owns the client's session: the text being edited, the selected
operation and action, the latest result, the known key files and the loading flag.

	+---------+   setters    +---------+   write-through   +---------+
	| command | -----------> |  Store  | ----------------> | Storage |
	+---------+              +---------+                   +---------+
	                              |
	                              | Subscribe
	                              v
	                    autosave, UserLogger, ...

🎯 Purpose:
- Single owner of session state, scoped through context.Context
- Every persisted field is mirrored synchronously into Storage under its field name
- loading is in-memory only

💾 Storage:
- FileStorage keeps one JSON object per session file, replaced atomically on every write
- MemoryStorage is used by tests and throwaway sessions

⚠️ FromContext returns ErrNoStore when nothing scoped a store, instead of handing
back a zero value.
*/
package state
