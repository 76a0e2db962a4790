// Package engine hosts the conversion backends behind fetch.Engine. The
// gateway itself never parses HTML or counts tokens; everything between URL
// and markdown happens inside one of these backends.
package engine
