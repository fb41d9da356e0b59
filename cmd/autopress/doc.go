// Command autopress runs the autonomous publishing pipeline: one-shot
// batches, the window scheduler, queue inspection, and configuration
// utilities.
package main
