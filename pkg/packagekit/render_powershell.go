package packagekit

import (
	"context"
	"io"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

const defaultPowershellFilename = "{bin_name}-{target}.zip"

// psEscaper makes text safe inside a double quoted PowerShell string.
var psEscaper = strings.NewReplacer("`", "``", `"`, "`\"", "$", "`$")

func powershellVars() map[string]string {
	return map[string]string{
		"version":  "${Version}",
		"bin_name": "${BinName}",
		"target":   "${Target}",
		"filename": "${Filename}",
	}
}

// RenderPowershellInstaller writes a PowerShell script that downloads
// the release for the host, unpacks it under ~\.<bin>, registers it
// with Programs and Features and adds it to the user PATH.
func RenderPowershellInstaller(ctx context.Context, w io.Writer, opts *ScriptOptions) error {
	_, span := trace.StartSpan(ctx, "packagekit.RenderPowershellInstaller")
	defer span.End()

	if err := opts.validate(); err != nil {
		return err
	}

	filename := opts.Filename
	if filename == "" {
		filename = defaultPowershellFilename
	}

	powershellTemplate := `#!/usr/bin/env pwsh
param(
  [String]$Version = "latest",
  # Do not add the bin directory to the user PATH
  [Switch]$NoPathUpdate = $false,
  # Do not list the program in Programs and Features
  [Switch]$NoRegisterInstallation = $false,
  # Use Invoke-RestMethod even when curl.exe is available
  [Switch]$DownloadWithoutCurl = $false
);

$ErrorActionPreference = "Stop"

$BinName = "{{.BinName}}"
$InstallDir = Join-Path $Home ".{{.BinName}}"

function New-TemporaryDirectory {
  $Parent = [System.IO.Path]::GetTempPath()
  $Name = [System.IO.Path]::GetRandomFileName()
  New-Item -ItemType Directory -Path (Join-Path $Parent $Name)
}
{{if .LatestVersionURL}}
function Find-Latest-Version {
  (Invoke-WebRequest -Uri "{{.LatestVersionURL}}" -UseBasicParsing).Content.Trim()
}
{{end}}
function Get-Target {
  $SystemType = (Get-CimInstance Win32_ComputerSystem).SystemType
  if ($SystemType -match "ARM64-based") {
    return "windows-arm64"
  }
  if ($SystemType -match "x64-based") {
    return "windows-x64"
  }
  return "windows-x64"
}

function Get-Filename {
  param([String]$Version, [String]$Target)
  "{{.Filename}}"
}

function Get-Download-Url {
  param([String]$Version, [String]$Target)
  $Filename = Get-Filename -Version $Version -Target $Target
  "{{.DownloadURL}}"
}

function Install-{{.Noun}} {
  param([String]$Version)
{{if .LatestVersionURL}}
  if ($Version -eq "latest") {
    $Version = Find-Latest-Version
  }
{{end}}
  $Target = Get-Target
  $Url = Get-Download-Url -Version $Version -Target $Target
  $BinDir = Join-Path $InstallDir "bin"
  $null = New-Item -ItemType Directory -Force -Path $BinDir

  $TempDir = New-TemporaryDirectory
  $Archive = Join-Path $TempDir (Get-Filename -Version $Version -Target $Target)

  Write-Output "Downloading $BinName $Version from $Url"
  $UseCurl = (-not $DownloadWithoutCurl) -and (Get-Command curl.exe -ErrorAction SilentlyContinue)
  if ($UseCurl) {
    curl.exe "-#SfLo" "$Archive" "$Url"
    if ($LASTEXITCODE -ne 0) {
      Write-Warning "curl.exe failed with exit code $LASTEXITCODE, retrying with Invoke-RestMethod"
      $UseCurl = $false
    }
  }
  if (-not $UseCurl) {
    Invoke-RestMethod -Uri $Url -OutFile $Archive
  }

  if ($Archive -like "*.zip") {
    Expand-Archive -Path $Archive -DestinationPath $BinDir -Force
  } else {
    Move-Item -Force -Path $Archive -Destination (Join-Path $BinDir "$BinName.exe")
  }
  Remove-Item -Recurse -Force $TempDir

  $Exe = Join-Path $BinDir "$BinName.exe"
  $InstalledVersion = "$(& $Exe --version)"
  if ($LASTEXITCODE -ne 0) {
    Write-Error "$BinName was installed but failed to run: $InstalledVersion"
    return
  }

  if (-not $NoRegisterInstallation) {
    $RegistryKey = "HKCU:\Software\Microsoft\Windows\CurrentVersion\Uninstall\{{.BinName}}"
    $null = New-Item -Path $RegistryKey -Force
    $null = New-ItemProperty -Path $RegistryKey -Name "DisplayName" -Value "{{.Name}}" -PropertyType String -Force
    $null = New-ItemProperty -Path $RegistryKey -Name "DisplayVersion" -Value $Version -PropertyType String -Force
    $null = New-ItemProperty -Path $RegistryKey -Name "InstallLocation" -Value $InstallDir -PropertyType String -Force
    $null = New-ItemProperty -Path $RegistryKey -Name "UninstallString" -Value "powershell -c ""Remove-Item -Recurse -Force '$InstallDir'; Remove-Item -Force '$RegistryKey'""" -PropertyType String -Force
    $null = New-ItemProperty -Path $RegistryKey -Name "NoModify" -Value 1 -PropertyType DWord -Force
    $null = New-ItemProperty -Path $RegistryKey -Name "NoRepair" -Value 1 -PropertyType DWord -Force
  }

  if (-not $NoPathUpdate) {
    $Path = @([Environment]::GetEnvironmentVariable("Path", "User") -split ";" | Where-Object { $_ -ne "" })
    if ($Path -notcontains $BinDir) {
      $Path += $BinDir
      [Environment]::SetEnvironmentVariable("Path", ($Path -join ";"), "User")
      $env:Path += ";$BinDir"
    }
  }

  Write-Output "$BinName $InstalledVersion was installed to $BinDir"
}

Install-{{.Noun}} -Version $Version
`

	var data = struct {
		Name             string
		BinName          string
		Noun             string
		Filename         string
		DownloadURL      string
		LatestVersionURL string
	}{
		Name:             psEscaper.Replace(opts.displayName()),
		BinName:          opts.BinName,
		Noun:             cmdletNoun(opts.BinName),
		Filename:         expandPlaceholders(filename, psEscaper.Replace, powershellVars()),
		DownloadURL:      expandPlaceholders(opts.DownloadURL, psEscaper.Replace, powershellVars()),
		LatestVersionURL: psEscaper.Replace(opts.LatestVersionURL),
	}

	t, err := template.New("PowershellInstaller").Parse(powershellTemplate)
	if err != nil {
		return errors.Wrap(err, "not able to parse powershell installer template")
	}
	return t.ExecuteTemplate(w, "PowershellInstaller", data)
}
