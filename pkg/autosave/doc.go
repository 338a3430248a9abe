/*
Package autosave keeps the server's copy of the session text up to date.

	text change --> Debouncer (5s quiet) --+
	                                       +--> Saver --> PATCH save_text
	blur -------->  Throttler (2s)  -------+

🎯 Purpose:
- Debounce: each change replaces the pending save, only the latest text is sent
- Throttle: a blur saves at once unless one ran inside the window; dropped calls are not queued
- Saver skips text equal to the last saved text and never retries

Time is injected through Clock so the policies can be driven deterministically.
*/
package autosave
