package executor

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/neritic/functiond/metadata/models"
)

//go:embed dockerfiles
var dockerfiles embed.FS

// supportedLanguages lists the languages a base image exists for.
var supportedLanguages = []string{models.LanguagePython, models.LanguageNode}

// imageName derives the base image tag for a language, e.g.
// "functiond-python".
func imageName(prefix string, language string) string {
	return prefix + "-" + language
}

// entryFile is the in-container path of the function payload.
func entryFile(language string) string {
	if language == models.LanguageNode {
		return "/tmp/function.js"
	}
	return "/tmp/function.py"
}

// interpreter is the command used to run the payload for a language.
func interpreter(language string) string {
	if language == models.LanguageNode {
		return "node"
	}
	return "python3"
}

func isSupportedLanguage(language string) bool {
	for _, l := range supportedLanguages {
		if l == language {
			return true
		}
	}
	return false
}

// buildContext returns the embedded docker build context for a language.
func buildContext(language string) (fs.FS, error) {
	sub, err := fs.Sub(dockerfiles, "dockerfiles/"+language)
	if err != nil {
		return nil, fmt.Errorf("no build context for language %s: %w", language, err)
	}
	return sub, nil
}

// ensureImages builds any missing per-language base image.
func ensureImages(ctx context.Context, client DockerClient, prefix string, logger *zap.Logger) error {
	for _, language := range supportedLanguages {
		tag := imageName(prefix, language)
		if client.ImageExists(ctx, tag) {
			logger.Debug("base image present", zap.String("image", tag))
			continue
		}
		bctx, err := buildContext(language)
		if err != nil {
			return err
		}
		logger.Info("building base image", zap.String("image", tag))
		if err := client.BuildImage(ctx, tag, bctx); err != nil {
			return err
		}
	}
	return nil
}
