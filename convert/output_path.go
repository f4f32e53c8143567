package convert

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"cssblocks/block"
	"cssblocks/common"
	"cssblocks/config"
	"cssblocks/state"
)

// outputBaseName drops ".css" and ".block" extensions from source file name.
func outputBaseName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.TrimSuffix(name, ".block")
}

// buildOutputPath returns name of the compiled file for src. Unless output
// name template is configured directory structure under the command line
// argument is kept in the output directory.
func buildOutputPath(src source, b *block.Block, mode common.OutputMode, env *state.LocalEnv) (string, error) {
	out := filepath.Join(env.OutDir, filepath.Dir(src.rel), config.CleanFileName(outputBaseName(filepath.Base(src.rel)))+".css")
	if tmpl := env.Cfg.Compiler.OutputNameTemplate; tmpl != "" {
		if name := assemblePath(env.OutDir, expandOutputNameTemplate(b, src, mode, tmpl, env)); name != "" {
			out = name
		}
	}
	if out == filepath.Clean(src.path) {
		return "", fmt.Errorf("output would overwrite block source: %s", src.path)
	}
	return out, nil
}

func expandOutputNameTemplate(b *block.Block, src source, mode common.OutputMode, tmpl string, env *state.LocalEnv) string {
	name, err := expandTemplate(b, src, mode, config.OutputNameTemplateFieldName, tmpl)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename, using default", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(name)
}

// assemblePath cleans every segment of expanded template name, which may
// contain subdirectories, and puts the result under outDir. Segments going
// up are dropped so output stays inside outDir.
func assemblePath(outDir, name string) string {
	var parts []string
	for _, seg := range strings.Split(filepath.ToSlash(name), "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		parts = append(parts, config.CleanFileName(seg))
	}
	if len(parts) == 0 {
		return ""
	}
	last := len(parts) - 1
	if !strings.EqualFold(filepath.Ext(parts[last]), ".css") {
		parts[last] += ".css"
	}
	return filepath.Join(append([]string{outDir}, parts...)...)
}
