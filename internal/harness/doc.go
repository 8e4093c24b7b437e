// Package harness provides a conformance testing framework for the
// descent lowering pipeline.
//
// A scenario is a YAML file pairing a CUE module description with an
// expected lowering disposition and optional evaluator checks. The
// harness compiles the module through the frontend, lowers it, and
// verifies:
//
//   - the lowering disposition ("lowered" or "unconverted") matches
//   - for unconverted modules, the expected leftover op kinds survive
//   - for lowered modules, each check evaluates the named function on
//     concrete arguments and compares the results lane by lane
//
// Scenarios marked golden additionally pin the printed lowered module
// under testdata/golden/ via goldie; run the tests with -update to
// regenerate after an intentional output change.
//
// Every scenario runs against a fresh graph, so runs are independent
// and deterministic.
package harness
