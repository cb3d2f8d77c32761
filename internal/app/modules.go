package app

import (
	"github.com/specialistvlad/gridflow/internal/registry"
	"github.com/specialistvlad/gridflow/modules/existing_data"
	"github.com/specialistvlad/gridflow/modules/lowercase"
	"github.com/specialistvlad/gridflow/modules/merge_files"
	"github.com/specialistvlad/gridflow/modules/rsync_folder"
	"github.com/specialistvlad/gridflow/modules/s3_upload"
	"github.com/specialistvlad/gridflow/modules/sleep"
	"github.com/specialistvlad/gridflow/modules/split_file"
	"github.com/specialistvlad/gridflow/modules/web_request"
)

// CoreModules is the definitive list of all task kinds that are compiled into
// the gridflow binary.
func CoreModules() []registry.Module {
	return []registry.Module{
		&existing_data.Module{},
		&rsync_folder.Module{},
		&sleep.Module{},
		&web_request.Module{},
		&split_file.Module{},
		&lowercase.Module{},
		&merge_files.Module{},
		&s3_upload.Module{},
	}
}
