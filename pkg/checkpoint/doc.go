// Package checkpoint stores the crawler's global watermark.
//
// The checkpoint is a single text file holding the last completed crawl date
// as YYYY/MM/DD. It is read once when a run starts and written once when the
// whole roster has been processed, regardless of individual day failures.
// Aircraft that already have an output directory resume from this date;
// aircraft seen for the first time start from the epoch instead.
//
// A missing or empty file is not an error: Read returns the epoch.
// Writes go to a temporary file which is fsynced and renamed over the
// previous checkpoint, so a crash never leaves a truncated date behind.
package checkpoint
