package vecplot

import "embed"

//go:embed webui
var webuiFiles embed.FS
