package servercfg

import (
	"fmt"
	"os"

	"github.com/CloudNativeWorks/etlctl/internal/operations/common"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
	"github.com/CloudNativeWorks/etlctl/pkg/template"
)

func renderStartScript(binary string, port uint16) string {
	return fmt.Sprintf(template.StartScriptTemplate, binary, port)
}

// WriteStartScript (re)creates etl_start.sh inside serverDir with mode 0755
func WriteStartScript(serverDir string, port uint16, goarch string) (string, error) {
	content, err := StartScript(port, goarch)
	if err != nil {
		return "", err
	}

	path := models.StartScriptPath(serverDir)
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return "", common.FSError("write", path, err)
	}
	// WriteFile keeps the old mode of an existing file
	if err := os.Chmod(path, 0755); err != nil {
		return "", common.FSError("chmod", path, err)
	}
	return path, nil
}
