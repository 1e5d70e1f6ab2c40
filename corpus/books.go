// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package corpus

// Testament identifies which testament a book belongs to.
type Testament string

const (
	OldTestament Testament = "OT"
	NewTestament Testament = "NT"
)

// Genre is a coarse literary classification used as a scalar search field.
type Genre string

const (
	GenreLaw        Genre = "law"
	GenreHistory    Genre = "history"
	GenreWisdom     Genre = "wisdom"
	GenreProphecy   Genre = "prophecy"
	GenreGospel     Genre = "gospel"
	GenreEpistle    Genre = "epistle"
	GenreApocalypse Genre = "apocalypse"
)

// BookOrder lists the canon in traditional order. Container sorting and the
// ordinal of a book both derive from this list.
var BookOrder = []string{
	"Genesis", "Exodus", "Leviticus", "Numbers", "Deuteronomy",
	"Joshua", "Judges", "Ruth", "1 Samuel", "2 Samuel",
	"1 Kings", "2 Kings", "1 Chronicles", "2 Chronicles", "Ezra",
	"Nehemiah", "Esther", "Job", "Psalms", "Proverbs",
	"Ecclesiastes", "Song of Solomon", "Isaiah", "Jeremiah", "Lamentations",
	"Ezekiel", "Daniel", "Hosea", "Joel", "Amos",
	"Obadiah", "Jonah", "Micah", "Nahum", "Habakkuk",
	"Zephaniah", "Haggai", "Zechariah", "Malachi",
	"Matthew", "Mark", "Luke", "John", "Acts",
	"Romans", "1 Corinthians", "2 Corinthians", "Galatians", "Ephesians",
	"Philippians", "Colossians", "1 Thessalonians", "2 Thessalonians", "1 Timothy",
	"2 Timothy", "Titus", "Philemon", "Hebrews", "James",
	"1 Peter", "2 Peter", "1 John", "2 John", "3 John",
	"Jude", "Revelation",
}

var bookIndex = func() map[string]int {
	m := make(map[string]int, len(BookOrder))
	for i, name := range BookOrder {
		m[name] = i
	}
	return m
}()

var bookGenres = map[string]Genre{
	"Genesis": GenreLaw, "Exodus": GenreLaw, "Leviticus": GenreLaw,
	"Numbers": GenreLaw, "Deuteronomy": GenreLaw,

	"Joshua": GenreHistory, "Judges": GenreHistory, "Ruth": GenreHistory,
	"1 Samuel": GenreHistory, "2 Samuel": GenreHistory,
	"1 Kings": GenreHistory, "2 Kings": GenreHistory,
	"1 Chronicles": GenreHistory, "2 Chronicles": GenreHistory,
	"Ezra": GenreHistory, "Nehemiah": GenreHistory, "Esther": GenreHistory,
	"Acts": GenreHistory,

	"Job": GenreWisdom, "Psalms": GenreWisdom, "Proverbs": GenreWisdom,
	"Ecclesiastes": GenreWisdom, "Song of Solomon": GenreWisdom,

	"Isaiah": GenreProphecy, "Jeremiah": GenreProphecy, "Lamentations": GenreProphecy,
	"Ezekiel": GenreProphecy, "Daniel": GenreProphecy, "Hosea": GenreProphecy,
	"Joel": GenreProphecy, "Amos": GenreProphecy, "Obadiah": GenreProphecy,
	"Jonah": GenreProphecy, "Micah": GenreProphecy, "Nahum": GenreProphecy,
	"Habakkuk": GenreProphecy, "Zephaniah": GenreProphecy, "Haggai": GenreProphecy,
	"Zechariah": GenreProphecy, "Malachi": GenreProphecy,

	"Matthew": GenreGospel, "Mark": GenreGospel, "Luke": GenreGospel,
	"John": GenreGospel,

	"Romans": GenreEpistle, "1 Corinthians": GenreEpistle, "2 Corinthians": GenreEpistle,
	"Galatians": GenreEpistle, "Ephesians": GenreEpistle, "Philippians": GenreEpistle,
	"Colossians": GenreEpistle, "1 Thessalonians": GenreEpistle, "2 Thessalonians": GenreEpistle,
	"1 Timothy": GenreEpistle, "2 Timothy": GenreEpistle, "Titus": GenreEpistle,
	"Philemon": GenreEpistle, "Hebrews": GenreEpistle, "James": GenreEpistle,
	"1 Peter": GenreEpistle, "2 Peter": GenreEpistle, "1 John": GenreEpistle,
	"2 John": GenreEpistle, "3 John": GenreEpistle, "Jude": GenreEpistle,

	"Revelation": GenreApocalypse,
}

// KnownBook reports whether name is part of the canon.
func KnownBook(name string) bool {
	_, ok := bookIndex[name]
	return ok
}

// BookIndex returns the canonical position of the book, or -1 if unknown.
func BookIndex(name string) int {
	if i, ok := bookIndex[name]; ok {
		return i
	}
	return -1
}

// TestamentOf classifies a book. Matthew onward is the New Testament.
func TestamentOf(book string) (Testament, error) {
	i, ok := bookIndex[book]
	if !ok {
		return "", ErrUnknownBook
	}
	if i < bookIndex["Matthew"] {
		return OldTestament, nil
	}
	return NewTestament, nil
}

// GenreOf classifies a book by literary genre.
func GenreOf(book string) (Genre, error) {
	g, ok := bookGenres[book]
	if !ok {
		return "", ErrUnknownBook
	}
	return g, nil
}
