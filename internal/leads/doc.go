// Package leads implements the find-or-append lead upsert on top of a
// rowstore.Table.
//
// Rows are laid out as [timestamp, name, email, favoriteColor]. The first row
// whose email column equals the submitted address owns that lead; later
// duplicates are ignored on read. Writes for one email are serialized through a
// leadlock.Locker so concurrent submissions cannot both append.
package leads
