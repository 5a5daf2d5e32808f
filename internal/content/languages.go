package content

// Language is a course language shown in the top bar dropdown.
type Language struct {
	Name string
	Icon string
}

var languages = []Language{
	{Name: "Bash", Icon: "bash-original.svg"},
	{Name: "C", Icon: "c-original.svg"},
	{Name: "Fortran", Icon: "fortran-original.svg"},
	{Name: "Java", Icon: "java-plain-wordmark.svg"},
	{Name: "Ruby", Icon: "ruby-original.svg"},
	{Name: "Rust", Icon: "rust-original.svg"},
}

// DefaultLanguageIndex selects C.
const DefaultLanguageIndex = 1

// Languages returns a copy of the supported language list.
func Languages() []Language {
	return append([]Language(nil), languages...)
}

// LanguageByName returns the language with the given name, case-sensitive.
func LanguageByName(name string) (Language, bool) {
	for _, l := range languages {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}

// DefaultLanguage returns the language selected before the learner picks one.
func DefaultLanguage() Language {
	return languages[DefaultLanguageIndex]
}
