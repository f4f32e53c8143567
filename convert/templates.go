package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"cssblocks/block"
	"cssblocks/common"
)

// Values holds variables available for output name template expansion.
type Values struct {
	Context    string
	Name       string
	SourceFile string
	Dir        string
	Mode       string
	GUID       string
}

func expandTemplate(b *block.Block, src source, mode common.OutputMode, name, field string) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	dir := filepath.ToSlash(filepath.Dir(src.rel))
	if dir == "." {
		dir = ""
	}
	values := Values{
		Context:    name,
		Name:       b.Name(),
		SourceFile: outputBaseName(filepath.Base(src.rel)),
		Dir:        dir,
		Mode:       mode.String(),
		GUID:       b.GUID(),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
