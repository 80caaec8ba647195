package handles

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/daobatch/internal/config"
)

func TestWrite(t *testing.T) {
	w := NewWriter(config.Handles{Prefix: "2345.2", Password: "pw", IIIFBase: "https://library.bc.edu/iiif/view/"})

	var buf bytes.Buffer
	if err := w.Write(&buf, []string{"BC1986_020E_3940", "BC1986_020E_3941"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "CREATE 2345.2/BC1986_020E_3940\n" +
		"100 HS_ADMIN 86400 1110 ADMIN 300:111111111111:2345.2/BC1986_020E_3940\n" +
		"300 HS_SECKEY 86400 1100 UTF8 pw\n" +
		"201 URL 86400 1110 UTF8 https://library.bc.edu/iiif/view/BC1986_020E_3940\n" +
		"\n" +
		"CREATE 2345.2/BC1986_020E_3941\n" +
		"100 HS_ADMIN 86400 1110 ADMIN 300:111111111111:2345.2/BC1986_020E_3941\n" +
		"300 HS_SECKEY 86400 1100 UTF8 pw\n" +
		"201 URL 86400 1110 UTF8 https://library.bc.edu/iiif/view/BC1986_020E_3941\n" +
		"\n"

	if buf.String() != expected {
		t.Errorf("Unexpected batch text:\n%s", buf.String())
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DefaultDir)
	w := NewWriter(config.Handles{Prefix: "2345.2", Password: "pw", IIIFBase: config.DefaultIIIFBase})
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

	path, err := w.WriteFile(dir, []string{"A_1"}, now)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if filepath.Base(path) != "handle_batch_text-20240305-140709.txt" {
		t.Errorf("Unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read batch file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("CREATE 2345.2/A_1\n")) {
		t.Errorf("Unexpected file content %q", data)
	}
}
