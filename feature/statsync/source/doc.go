// Package source reads per-player statistic records.
//
// A record source is a directory of <uuid>.json files, each holding a "stats"
// object keyed by category and then by statistic name:
//
//	{"stats": {"minecraft:mined": {"minecraft:stone": 120}}}
//
// Scanner.Scan lists the files changed strictly after the last committed pass;
// Scanner.Read decodes one of them. The filesystem is an afero.Fs so tests can
// run on an in-memory tree.
package source
