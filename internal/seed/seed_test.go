package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutual_aid/internal/models"
)

type recordingWriter struct {
	got []models.EmergencyContact
	err error
}

func (w *recordingWriter) Upsert(_ context.Context, contacts []models.EmergencyContact) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.got = append(w.got, contacts...)
	return len(contacts), nil
}

const documentYAML = `
contacts:
  - name: Central Police Station
    category: " Police "
    main_area: Downtown
    city: Nairobi
    phone: "999"
  - name: City Fire Brigade
    category: fire
    main_area: Industrial Area
    city: Nairobi
    full_address: Lusaka Road
    fax: "020-111"
`

func TestParse_Document(t *testing.T) {
	contacts, err := Parse([]byte(documentYAML))
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.Equal(t, "police", contacts[0].Category)
	assert.Equal(t, "999", contacts[0].Phone)
	assert.Equal(t, "Lusaka Road", contacts[1].FullAddress)
	assert.Equal(t, "020-111", contacts[1].Fax)
}

func TestParse_TopLevelList(t *testing.T) {
	contacts, err := Parse([]byte(`
- name: Mercy Hospital
  category: hospital
  main_area: Westlands
  city: Nairobi
`))
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Mercy Hospital", contacts[0].Name)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"no contacts":    `contacts: []`,
		"scalar":         `hello`,
		"missing city":   "- name: X\n  category: police\n  main_area: Y\n",
		"blank name":     "- name: '  '\n  category: police\n  main_area: Y\n  city: Z\n",
		"malformed yaml": "contacts: [",
	}
	for name, in := range cases {
		_, err := Parse([]byte(in))
		assert.Error(t, err, name)
	}

	_, err := Parse([]byte(`contacts: []`))
	assert.ErrorIs(t, err, ErrNoContacts)
}

func TestContacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(documentYAML), 0o600))

	w := &recordingWriter{}
	n, err := Contacts(context.Background(), w, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, w.got, 2)

	_, err = Contacts(context.Background(), &recordingWriter{err: errors.New("db down")}, path)
	assert.ErrorContains(t, err, "db down")

	_, err = Contacts(context.Background(), w, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
