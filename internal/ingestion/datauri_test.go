package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURI(t *testing.T) {
	uri, err := ParseDataURI("data:application/pdf;base64,JVBERi0=")
	require.NoError(t, err)
	assert.Equal(t, MIMEPDF, uri.MIMEType)
	assert.Equal(t, "%PDF-", string(uri.Data))
	assert.Equal(t, "data:application/pdf;base64,JVBERi0=", uri.String())
}

func TestParseDataURI_WithParameters(t *testing.T) {
	uri, err := ParseDataURI("data:Text/Plain;charset=utf-8;base64,SGk=")
	require.NoError(t, err)
	assert.Equal(t, MIMEText, uri.MIMEType)
	assert.Equal(t, "Hi", string(uri.Data))
}

func TestParseDataURI_Invalid(t *testing.T) {
	tests := []string{
		"https://example.com/resume.pdf",
		"data:application/pdf;base64",
		"data:;base64,SGk=",
		"data:text/plain,Hi",
		"data:text/plain;base64,!!!",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDataURI(in)
			assert.ErrorIs(t, err, ErrInvalidDataURI)
		})
	}
}

func TestMIMEFromFilename(t *testing.T) {
	assert.Equal(t, MIMEPDF, MIMEFromFilename("CV.PDF"))
	assert.Equal(t, MIMEDocx, MIMEFromFilename("resume.docx"))
	assert.Equal(t, MIMEText, MIMEFromFilename("notes.md"))
	assert.Equal(t, "image/png", MIMEFromFilename("scan.png"))
	assert.Equal(t, "application/octet-stream", MIMEFromFilename("archive.zip"))
}
