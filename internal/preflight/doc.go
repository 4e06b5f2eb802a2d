// Package preflight provides readiness checks for the content store, the
// speech provider and the local tools narrate depends on.
//
// These checks run in two contexts:
//   - The CLI "narrate status" command renders every result as a table.
//   - "narrate serve" logs failed checks as warnings before accepting requests,
//     so a misconfigured studio still starts and reports errors per request.
//
// Checks for unconfigured features report a skipped result rather than a failure.
package preflight
