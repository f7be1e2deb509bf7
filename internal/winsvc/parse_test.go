package winsvc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFirstToken covers quoted and unquoted invocation strings.
func TestFirstToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`C:\GitLab-Runner\gitlab-runner.exe`:                      `C:\GitLab-Runner\gitlab-runner.exe`,
		`C:\GitLab-Runner\gitlab-runner.exe run`:                  `C:\GitLab-Runner\gitlab-runner.exe`,
		`"C:\Program Files\GitLab\gitlab-runner.exe" run --debug`: `C:\Program Files\GitLab\gitlab-runner.exe`,
		`"C:\Program Files\GitLab\gitlab-runner.exe"`:             `C:\Program Files\GitLab\gitlab-runner.exe`,
		`/opt/gitlab-runner/gitlab-runner run`:                    `/opt/gitlab-runner/gitlab-runner`,
		``:    ``,
		`   `: ``,
	}

	for input, want := range cases {
		require.Equal(t, want, FirstToken(input), "input %q", input)
	}
}

// TestParseScOutput covers state and binary path extraction from sc output.
func TestParseScOutput(t *testing.T) {
	t.Parallel()

	queryOutput := "\r\nSERVICE_NAME: gitlab-runner\r\n" +
		"        TYPE               : 10  WIN32_OWN_PROCESS\r\n" +
		"        STATE              : 4  RUNNING\r\n" +
		"        WIN32_EXIT_CODE    : 0  (0x0)\r\n"
	require.True(t, parseScRunning(queryOutput))

	stoppedOutput := "        STATE              : 1  STOPPED\r\n"
	require.False(t, parseScRunning(stoppedOutput))

	configOutput := "[SC] QueryServiceConfig SUCCESS\r\n" +
		"SERVICE_NAME: gitlab-runner\r\n" +
		"        BINARY_PATH_NAME   : \"C:\\GitLab Runner\\gitlab-runner.exe\" run\r\n" +
		"        START_TYPE         : 2   AUTO_START\r\n"
	require.Equal(t, `C:\GitLab Runner\gitlab-runner.exe`, parseScBinaryPath(configOutput))
}

// TestParseSystemctlShow covers existing, running and missing units.
func TestParseSystemctlShow(t *testing.T) {
	t.Parallel()

	output := "LoadState=loaded\n" +
		"ActiveState=active\n" +
		"ExecStart={ path=/opt/gitlab-runner/gitlab-runner ; argv[]=/opt/gitlab-runner/gitlab-runner run ; ignore_errors=no }\n"

	status := parseSystemctlShow("gitlab-runner", output)
	require.True(t, status.Exists)
	require.True(t, status.Running)
	require.Equal(t, "/opt/gitlab-runner/gitlab-runner", status.BinaryPath)

	missing := parseSystemctlShow("gitlab-runner", "LoadState=not-found\nActiveState=inactive\nExecStart=\n")
	require.False(t, missing.Exists)
	require.False(t, missing.Running)
}
