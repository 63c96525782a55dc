// Package dates turns free-form user input and playlist names into calendar months.
//
// Two independent entry points:
//
//   - [Parse] : date expressions from the command line ("March 2025",
//     "03-25", "Oct 2023 - Mar 2024") into an ordered list of months.
//     Ranges are inclusive and expanded month by month.
//   - [Extract] : a playlist's display name ("[2025] March", "2025-03")
//     into an optional month via a fixed-priority pattern ladder.
//
// Parse fails loudly with a [ParseError]; Extract never fails and reports
// "no match" instead, since most playlists simply aren't monthly ones.
package dates
