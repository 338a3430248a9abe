/*
Package processor runs encode and decode requests for the session in context.

	Submit(action)
	   |-- text blank?       -> "Please enter text to process."  (no request)
	   |-- no operation?     -> "Please select an operation."    (no request)
	   '-- loading=true, action recorded, one ProcessText call
	         |-- ok   -> result replaced
	         '-- fail -> "Failed to process text: <msg>", result kept
	       loading=false

Concurrent submits are not coordinated; whichever answer lands last owns the result.
*/
package processor
