// Package decoder turns FLAC files into raw PCM byte streams.
//
// Two backends satisfy the Decoder interface:
//   - Command drives the reference flac executable, which writes a .raw
//     artifact next to the source file that is read back and removed.
//   - Native decodes in-process with github.com/mewkiz/flac and packs
//     samples exactly as the executable's raw output does.
//
// Locate resolves which executable Command runs, and Installer fetches the
// Windows release archive on first use.
package decoder
