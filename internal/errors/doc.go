// Package errors defines the coded errors of hookbind.
//
// Every code ("H001", "H050", ...) maps to a registered template with a
// category, a one-line message, a longer detail and a documentation URL.
// Codes are grouped by range:
//
//	H001-H049  usage      misuse of the engine API
//	H050-H069  callback   a subscriber failed during delivery
//	H070-H089  lifecycle  owner and registrar bookkeeping
//	H090-H094  config     hookbind.yaml
//	H095-H099  inspect    debug inspector requests
//	H100-H109  bench      the bench command
//
// A HookError prints as a single line through Error, as a terminal block
// through Format, and as a JSON object through encoding/json:
//
//	err := errors.New("H001").WithOp("hook.Wrap")
//	errors.Fprint(os.Stderr, err)
package errors
