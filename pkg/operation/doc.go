/*
Package operation holds the catalogue of transforms the remote service understands.

	+-----------+      +-----------+
	| Operation |  x   |  Action   |
	| (base64…) |      | enc / dec |
	+-----------+      +-----------+

🎯 Purpose:
- Enumerates the 15 transform identifiers in their four display groups
- Parses user input into typed IDs and actions
- Treats the empty value as "no selection" rather than an error

The algorithms themselves are never implemented here; an ID is only ever sent
to the remote service as part of a process request.
*/
package operation
