// Package vm implements the worse runtime.
//
// This package contains:
//   - Tagged one-word term representation with inline pairs
//   - Reference-counted heap arena for large applications
//   - Algebraic shortcut layer (Apply)
//   - Iterative reduction engine parameterized by a Context
//   - Pure and decoding contexts
//   - Stream runtime turning a program into a byte transducer
//   - List encoding helpers and term images
package vm
