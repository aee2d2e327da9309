package template

// VsftpdTemplate replaces /etc/vsftpd.conf when FTP access is requested.
// Arguments: passive port range start (%d), end (%d).
var VsftpdTemplate = `# ET Legacy Server FTP Configuration
anonymous_enable=NO
local_enable=YES
write_enable=YES
local_umask=002
dirmessage_enable=YES
use_localtime=YES
xferlog_enable=YES
connect_from_port_20=YES
chroot_local_user=YES
secure_chroot_dir=/var/run/vsftpd/empty
pam_service_name=vsftpd
rsa_cert_file=/etc/ssl/certs/ssl-cert-snakeoil.pem
rsa_private_key_file=/etc/ssl/private/ssl-cert-snakeoil.key
ssl_enable=NO
pasv_enable=YES
pasv_min_port=%d
pasv_max_port=%d
allow_writeable_chroot=YES
`
