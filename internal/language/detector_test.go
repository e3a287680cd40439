package language

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "plain english",
			text: "We are looking for a senior backend engineer to build payment systems.",
			want: "en",
		},
		{
			name: "german",
			text: "Wir suchen einen Entwickler für unser Team. Sie werden mit uns über die Architektur sprechen und nicht nur Code schreiben.",
			want: "de",
		},
		{
			name: "french",
			text: "Nous recherchons un développeur pour travailler avec nous sur une application. Vous êtes responsable des tests et de la qualité.",
			want: "fr",
		},
		{
			name: "spanish",
			text: "Buscamos un desarrollador para trabajar con nosotros en el proyecto. Este trabajo es para una empresa que está en Madrid.",
			want: "es",
		},
		{
			name: "short ambiguous text stays english",
			text: "Go developer",
			want: "en",
		},
		{
			name: "empty",
			text: "",
			want: "en",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Detect(tc.text))
		})
	}
}

func TestIsInStrictEnglishAsymmetry(t *testing.T) {
	t.Parallel()

	german := "Wir suchen einen Entwickler für unser Team. Sie werden bei uns mit der neuen Plattform arbeiten und nicht alleine sein."
	english := "We are hiring a contractor to redesign our marketing site."

	// English target is strict: German text is excluded.
	require.False(t, IsIn(german, "en"))
	require.True(t, IsIn(english, "en"))

	// Non-English targets also accept English.
	require.True(t, IsIn(german, "de"))
	require.True(t, IsIn(english, "de"))

	// But a non-English target does not accept a third language.
	require.False(t, IsIn(german, "fr"))
}

func TestIsInDefaultsToEnglish(t *testing.T) {
	t.Parallel()

	require.True(t, IsIn("Remote contract role for a Go developer.", ""))
}
