/*
Package remote is the HTTP client of the encoder service.

	GET    /api/files                 -> ["a.pem", ...]
	GET    /api/download_key/{name}   -> raw bytes
	DELETE /api/delete_key/{name}     -> {message}
	POST   /api/upload_key            -> {message, filename}   (multipart "file")
	PATCH  /api/save_text             -> {message}             ({new_text: string|null})
	POST   /api/process_text          -> {result}              ({text, operation, action})

🚨 Errors:
- Any non-2xx answer becomes *APIError carrying the body's error or message field
- Each endpoint has its own fallback message when the body has neither
- save_text also accepts 304

📊 Metrics are optional and registered on a caller-provided registerer.
*/
package remote
