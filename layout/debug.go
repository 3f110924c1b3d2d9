package layout

import (
	"encoding/json"

	"github.com/ByLCY/asciicam/raster"
)

// WriteDebugJSON 将页面描述输出为 JSON，便于调试或可视化。
func WriteDebugJSON(page *Page, path string) error {
	if page == nil {
		return nil
	}
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return err
	}
	return raster.WriteFileAtomic(path, data)
}
