// Package buildsys implements the clean and build pipelines for the libcudaimg solution.
// Each pipeline loads the MSVC toolchain environment, locates the solution, runs the build tool
// through the mvdan.cc/sh interpreter and, for builds, publishes the resulting DLL into the
// application's data folder. Every step fails fast and reports the status code of the step that
// failed.
package buildsys
