package template

// StartScriptTemplate is written to <serverDir>/etl_start.sh.
// Arguments: server binary name (%s), game port (%d).
var StartScriptTemplate = `#!/bin/bash

DIR="$( cd "$( dirname "${BASH_SOURCE[0]}" )" >/dev/null 2>&1 && pwd )"
"${DIR}/%s" \
    +set dedicated 2 \
    +set vm_game 0 \
    +set net_port %d \
    +set fs_game legacy \
    +set fs_basepath "${DIR}" \
    +set fs_homepath "${DIR}" \
    +exec etl_server.cfg
`
