// Package ingestion provides the batch driver that turns a directory of
// source documents into storyboards.
//
// A Pipeline lists the files of one directory, runs each through a
// processor (extract then convert, or load previously converted JSON) and
// hands the result to a Sink: a DirectorySink writing <base>.json files, or a
// StoreSink inserting into a repository and embedding the designated field.
// Files are processed concurrently using a worker pool. A file that fails is
// logged and recorded in the Report; the rest of the batch continues.
package ingestion
