package main

import "github.com/phlcrny/Install-GitLabRunner/cmd/gitlab-runner-installer/cmd"

func main() {
	cmd.Execute()
}
